package dto

// Model describes one servable model.
type Model struct {
	Object  string `json:"object"`
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

// ModelsResponse is the OpenAI-compatible model list envelope.
type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// NewModelsResponse lists the single configured model.
func NewModelsResponse(modelName string) ModelsResponse {
	return ModelsResponse{
		Object: "list",
		Data: []Model{
			{Object: "model", ID: modelName, OwnedBy: "embedd"},
		},
	}
}
