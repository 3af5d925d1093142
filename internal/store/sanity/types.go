package sanity

import "encoding/json"

type mutateRequest struct {
	Mutations []map[string]interface{} `json:"mutations"`
}

type deleteByQuery struct {
	Query  string            `json:"query"`
	Params map[string]string `json:"params,omitempty"`
}

type mutateResponse struct {
	TransactionID string           `json:"transactionId"`
	Results       []mutationResult `json:"results"`
}

type mutationResult struct {
	ID        string          `json:"id"`
	Operation string          `json:"operation"`
	Document  json.RawMessage `json:"document,omitempty"`
}
