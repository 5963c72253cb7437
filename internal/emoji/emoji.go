package emoji

// emojiMap holds [emoji, fallback] pairs
var emojiMap = map[string][2]string{
	"error":      {"❌", "[ERR]"},
	"warning":    {"⚠️", "[WRN]"},
	"info":       {"ℹ️", "[INF]"},
	"success":    {"✅", "[OK]"},
	"female":     {"🟣", "[F]"},
	"male":       {"🔵", "[M]"},
	"neutral":    {"⚪", "[=]"},
	"analogy":    {"🧭", "[ANA]"},
	"ranking":    {"📏", "[SIM]"},
	"pairs":      {"⚖️", "[PAIR]"},
	"subspace":   {"🧮", "[PCA]"},
	"projection": {"📐", "[PRJ]"},
	"probe":      {"🧠", "[GEN]"},
	"training":   {"🏋️", "[W2V]"},
	"cache":      {"💾", "[DB]"},
	"plot":       {"📈", "[PLT]"},
	"words":      {"📋", "[LST]"},
	"run":        {"🚀", "[RUN]"},
}

// NeutralBand is the absolute score below which a lean is reported as neutral
const NeutralBand = 0.05

var emojiDisabled bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled = disabled
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled {
			return mapping[1]
		}
		return mapping[0]
	}
	return "[?]"
}

// LeanKey maps a signed gender score to "female", "male" or "neutral".
// Positive scores lean female.
func LeanKey(score float64) string {
	switch {
	case score > NeutralBand:
		return "female"
	case score < -NeutralBand:
		return "male"
	default:
		return "neutral"
	}
}

// ForScore returns the emoji for a signed gender score
func ForScore(score float64) string {
	return GetEmoji(LeanKey(score))
}
