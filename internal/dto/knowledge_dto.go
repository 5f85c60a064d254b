package dto

type SearchKnowledgeRequest struct {
	Query string `query:"q" validate:"required,max=500"`
}

type KnowledgeRecordResponse struct {
	DocId          string   `json:"doc_id"`
	Title          string   `json:"title"`
	Section        string   `json:"section"`
	VersionDate    string   `json:"version_date"`
	Text           string   `json:"text"`
	RelevanceScore float64  `json:"relevance_score"`
	Keywords       []string `json:"keywords,omitempty"`
}

type UpsertKnowledgeRecordRequest struct {
	DocId          string   `json:"doc_id" validate:"required,max=64"`
	Title          string   `json:"title" validate:"required,max=255"`
	Section        string   `json:"section" validate:"max=255"`
	VersionDate    string   `json:"version_date" validate:"required,datetime=2006-01-02"`
	Text           string   `json:"text" validate:"required"`
	RelevanceScore float64  `json:"relevance_score" validate:"gte=0,lte=1"`
	Keywords       []string `json:"keywords,omitempty" validate:"max=20"`
}
