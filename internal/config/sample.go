package config

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# wordbias configuration
version: "1.0"

model:
  # table:<path> loads a word2vec text/binary table (optionally .gz)
  # trained:[corpus] trains a toy model, the built-in corpus when empty
  # ollama:<model> and openai:<model> embed words through a provider
  source: "trained:"
  format: auto          # auto, text, binary, json
  limit: 0              # keep only the first N table words, 0 keeps all
  normalize: false
  template: "{word}"    # sentence a word is embedded in for provider models
  batch_size: 64

ai:
  provider: ollama      # ollama or openai, used by probe
  model: llama3.2
  embedding_model: nomic-embed-text
  endpoint: ""          # defaults to the provider's public endpoint
  # api_key: ""         # prefer WORDBIAS_AI_API_KEY or OPENAI_API_KEY
  timeout: 60s
  max_retries: 3
  temperature: 0.9

storage:
  cache_dir: ~/.cache/wordbias
  cache_path: ""        # defaults to <cache_dir>/embeddings.db
  disable_cache: false

output:
  default_format: text  # text, json, markdown, csv
  color_mode: auto      # auto, always, never
  verbose: false
  no_emoji: false
  plot_width: 8         # inches
  plot_height: 6

analysis:
  top_k: 10
  components: 10
  bias_exponent: 1
  timeout: 5m
  probe_samples: 5
  probe_templates:
    - "The {word} said that"
    - "The {word} went home because"
  cancel_check_period: 1024

training:
  corpus: ""            # file or directory, empty for the built-in corpus
  dimension: 50
  window: 5
  min_count: 1
  sample: 0.001
  negative: 5
  epochs: 100
  alpha: 0.025
  min_alpha: 0.0001
  seed: 1
  cbow: false

wordlists:
  professions: ` + DefaultProfessionsURL + `
  pairs: ""             # a:b,c:d or a file of pairs, empty for the built-in pairs
  fetch_timeout: 30s
`
}

// MinimalSampleConfig returns a configuration with only the common settings
func MinimalSampleConfig() string {
	return `version: "1.0"
model:
  source: "trained:"
ai:
  provider: ollama
  model: llama3.2
output:
  default_format: text
`
}
