package model

// ================ Config ================
type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"24h"`
	Context struct {
		MaxTurns int `envconfig:"CONVERSATION_CONTEXT_MAX_TURNS" default:"5"`
	}
	Oracle struct {
		Timeout string `envconfig:"ORACLE_TIMEOUT" default:"20s"`
	}
}

type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.0"`
}

type AnalyzerModelConfig struct {
	Model       string  `envconfig:"ANALYZER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"ANALYZER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"ANALYZER_TEMPERATURE" default:"0.1"`
}
