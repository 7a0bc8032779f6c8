package dto

type EditUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ChangeStatusRequest struct {
	Action string `json:"action"`
}
