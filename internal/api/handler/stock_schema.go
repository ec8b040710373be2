package handler

// stockInRequest is the payload for recording incoming stock. The timestamp
// is optional; when present it must be RFC 3339 and may carry any offset.
type stockInRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=500"`
	Category    string  `json:"category" validate:"required,oneof=GENSET TUG_ASSIST"`
	Timestamp   string  `json:"timestamp" validate:"omitempty"`
}

// stockOutRequest is the payload for recording stock usage. Usage is always
// posted at server time.
type stockOutRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=500"`
	Category    string  `json:"category" validate:"required,oneof=GENSET TUG_ASSIST"`
}

// historyQuery collects the filter and pagination query parameters of the
// history endpoint. All fields are optional.
type historyQuery struct {
	Type      string `query:"type" validate:"omitempty,oneof=IN OUT"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
	UserID    string `query:"userId"`
	Search    string `query:"q" validate:"max=200"`
	Page      int    `query:"page" validate:"omitempty,min=1"`
	Limit     int    `query:"limit" validate:"omitempty,min=1"`
}
