package types

// ModelDescriptor describes a model the engine can serve or download.
// Identity is the ID string.
type ModelDescriptor struct {
	// Engine model identifier.
	// example: phi3.5:latest
	ID string `json:"id" example:"phi3.5:latest"`
	// Short human description.
	// example: Fast and efficient model
	Description string `json:"description,omitempty" example:"Fast and efficient model"`
	// Approximate download size in GB.
	// example: 2.2
	SizeGB float64 `json:"size_gb" example:"2.2"`
	// Whether the model is recommended for this application.
	// example: true
	Recommended bool `json:"recommended" example:"true"`
	// Whether the engine reports the model as installed.
	// example: false
	Downloaded bool `json:"downloaded" example:"false"`
}
