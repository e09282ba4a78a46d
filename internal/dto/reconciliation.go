package dto

// AddCandidateRequest proposes one transaction/entry pairing for scoring.
type AddCandidateRequest struct {
	TransactionID          string  `json:"transactionID" binding:"required"`
	JournalEntryID         string  `json:"journalEntryID" binding:"required"`
	AmountDeltaMinor       int64   `json:"amountDeltaMinor"`
	DateDeltaDays          int64   `json:"dateDeltaDays"`
	TransactionDescription string  `json:"transactionDescription"`
	JournalDescription     string  `json:"journalDescription"`
	GroupID                *string `json:"groupID,omitempty"`
}

// AcceptPartialRequest moves a group of candidates to PartiallyAccepted.
type AcceptPartialRequest struct {
	GroupID      string   `json:"groupID" binding:"required"`
	CandidateIDs []string `json:"candidateIDs" binding:"required,min=1"`
}

// WriteOffRequest terminally disposes one candidate with a recorded reason.
type WriteOffRequest struct {
	Reason string `json:"reason" binding:"required"`
}
