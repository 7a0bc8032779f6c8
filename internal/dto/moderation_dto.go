package dto

import "github.com/google/uuid"

type CreateReportRequest struct {
	PublicationID string    `json:"publication_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	Reason        string    `json:"reason"`
	Comment       string    `json:"comment"`
}

type DecideIncidenceRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

type CreateAppealRequest struct {
	Reason string `json:"reason"`
}

type AssignReviewerRequest struct {
	ModeratorID uuid.UUID `json:"moderator_id"`
}

type DecideAppealRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

type SweepResponse struct {
	Enqueued int64 `json:"enqueued"`
}
