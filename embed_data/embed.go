package embed_data

import _ "embed"

// ModelDetails holds per-model token limits and pricing, keyed by lower-case model name.
//
//go:embed models_details/model_details.json
var ModelDetails []byte
