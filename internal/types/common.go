package types

type GenericSuccessResponse struct {
	Success bool `json:"success"`
}
