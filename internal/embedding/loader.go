package embedding

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yildizm/wordbias/internal/logger"
	"github.com/yildizm/wordbias/internal/vectorstore"
)

// Format identifies an on-disk embedding layout
type Format string

const (
	FormatAuto   Format = "auto"
	FormatText   Format = "text"   // word2vec text, or GloVe when there is no header
	FormatBinary Format = "binary" // word2vec binary
	FormatJSON   Format = "json"   // vector store snapshot
)

// FormatForPath picks a format from the file extension, ignoring a .gz
// suffix. Unknown extensions are text.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz"))) {
	case ".bin":
		return FormatBinary
	case ".json":
		return FormatJSON
	default:
		return FormatText
	}
}

// LoadOptions controls table loading
type LoadOptions struct {
	Name      string
	Format    Format
	Limit     int // keep only the first Limit words; 0 keeps all
	Normalize bool
	Logger    *logger.Logger

	// CancelCheckPeriod is how many vectors a neighbor scan scores between
	// context checks; 0 keeps the store default
	CancelCheckPeriod int
}

func (o LoadOptions) storeOptions() []vectorstore.MemoryStoreOption {
	if o.CancelCheckPeriod > 0 {
		return []vectorstore.MemoryStoreOption{vectorstore.WithCancelCheckPeriod(o.CancelCheckPeriod)}
	}
	return nil
}

// LoadFile reads an embedding table. A .gz suffix is decompressed and, when
// Format is auto, the extension picks the format (see FormatForPath).
func LoadFile(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path) // #nosec G304 -- path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("open embeddings: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	base := path
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
		base = strings.TrimSuffix(path, ".gz")
	}

	if opts.Name == "" {
		opts.Name = filepath.Base(base)
	}
	format := opts.Format
	if format == "" || format == FormatAuto {
		format = FormatForPath(base)
	}

	var t *Table
	switch format {
	case FormatText:
		t, err = ReadText(r, opts)
	case FormatBinary:
		t, err = ReadBinary(r, opts)
	case FormatJSON:
		t, err = ReadJSON(r, opts)
	default:
		return nil, fmt.Errorf("unsupported embedding format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	opts.Logger.Debug("loaded %d vectors of dimension %d from %s", t.Len(), t.Dimension(), path)
	return t, nil
}

// ReadText parses word2vec text format. A first line of exactly two
// integers is treated as a "count dim" header; without it the input is
// read as GloVe and the dimension comes from the first row.
func ReadText(r io.Reader, opts LoadOptions) (*Table, error) {
	br := bufio.NewReaderSize(r, 1<<20)

	var t *Table
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		lineNo++

		fields := strings.Fields(line)
		if len(fields) > 0 {
			if t == nil && lineNo == 1 && len(fields) == 2 {
				if _, cErr := strconv.Atoi(fields[0]); cErr == nil {
					dim, dErr := strconv.Atoi(fields[1])
					if dErr != nil || dim <= 0 {
						return nil, fmt.Errorf("line 1: invalid dimension %q", fields[1])
					}
					t = NewTable(opts.Name, dim, opts.storeOptions()...)
					fields = nil
				}
			}

			if len(fields) > 0 {
				if t == nil {
					t = NewTable(opts.Name, len(fields)-1, opts.storeOptions()...)
				}
				done, pErr := addTextRow(t, fields, opts)
				if pErr != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, pErr)
				}
				if done {
					return t, nil
				}
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
	}

	if t == nil || t.Len() == 0 {
		return nil, errors.New("no vectors found")
	}
	return t, nil
}

func addTextRow(t *Table, fields []string, opts LoadOptions) (bool, error) {
	if len(fields)-1 != t.Dimension() {
		return false, fmt.Errorf("expected %d values, got %d", t.Dimension(), len(fields)-1)
	}
	word := fields[0]
	if t.resolveExact(word) {
		return false, nil
	}

	vec := make([]float32, t.Dimension())
	for i, s := range fields[1:] {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return false, fmt.Errorf("word %q: %w", word, err)
		}
		vec[i] = float32(f)
	}
	return addLoaded(t, word, vec, opts)
}

// ReadBinary parses word2vec binary format: a "count dim" header line, then
// per word the word, a space, and dim little-endian float32 values.
func ReadBinary(r io.Reader, opts LoadOptions) (*Table, error) {
	br := bufio.NewReaderSize(r, 1<<20)

	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var count, dim int
	if _, err := fmt.Sscanf(strings.TrimSpace(header), "%d %d", &count, &dim); err != nil {
		return nil, fmt.Errorf("parse header %q: %w", strings.TrimSpace(header), err)
	}
	if count <= 0 || dim <= 0 {
		return nil, fmt.Errorf("invalid header %q", strings.TrimSpace(header))
	}

	t := NewTable(opts.Name, dim, opts.storeOptions()...)
	raw := make([]byte, 4*dim)
	for i := 0; i < count; i++ {
		word, err := br.ReadString(' ')
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
		word = strings.TrimSpace(word)

		if _, err := io.ReadFull(br, raw); err != nil {
			return nil, fmt.Errorf("vector for %q: %w", word, err)
		}
		if word == "" || t.resolveExact(word) {
			continue
		}

		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*j:]))
		}
		done, err := addLoaded(t, word, vec, opts)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	if t.Len() == 0 {
		return nil, errors.New("no vectors found")
	}
	return t, nil
}

// ReadJSON loads a vector store snapshot written by WriteJSON. The snapshot
// is keyed by word, so the vocabulary comes back in sorted order.
func ReadJSON(r io.Reader, opts LoadOptions) (*Table, error) {
	snapshot := vectorstore.NewMemoryStore()
	if err := snapshot.ImportFromReader(r); err != nil {
		return nil, err
	}
	if snapshot.Size() == 0 {
		return nil, errors.New("no vectors found")
	}

	var t *Table
	for _, word := range snapshot.List() {
		entry, _ := snapshot.Get(word)
		if t == nil {
			t = NewTable(opts.Name, len(entry.Vector), opts.storeOptions()...)
		}
		done, err := addLoaded(t, word, entry.Vector, opts)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	return t, nil
}

// WriteJSON writes the backing vector store as a JSON snapshot
func (t *Table) WriteJSON(w io.Writer) error {
	return t.store.ExportToWriter(w)
}

// Write encodes the table in the given format; auto means text
func (t *Table) Write(w io.Writer, format Format) error {
	switch format {
	case FormatBinary:
		return t.WriteBinary(w)
	case FormatJSON:
		return t.WriteJSON(w)
	case FormatText, FormatAuto, "":
		return t.WriteText(w)
	default:
		return fmt.Errorf("unsupported embedding format %q", format)
	}
}

// WriteBinary writes the table in word2vec binary format
func (t *Table) WriteBinary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", len(t.words), t.dim); err != nil {
		return err
	}

	raw := make([]byte, 4*t.dim)
	for _, word := range t.words {
		entry, _ := t.store.Get(word)
		for j, x := range entry.Vector {
			binary.LittleEndian.PutUint32(raw[4*j:], math.Float32bits(x))
		}
		if _, err := bw.WriteString(word + " "); err != nil {
			return err
		}
		if _, err := bw.Write(raw); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// addLoaded reports true once the vocabulary limit is reached
func addLoaded(t *Table, word string, vec []float32, opts LoadOptions) (bool, error) {
	if opts.Normalize {
		vec = vectorstore.NormalizeVector(vec)
	}
	if err := t.Add(word, vec); err != nil {
		return false, err
	}
	return opts.Limit > 0 && t.Len() >= opts.Limit, nil
}

func (t *Table) resolveExact(word string) bool {
	_, ok := t.store.Get(word)
	return ok
}
