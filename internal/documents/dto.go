package documents

import "time"

// SubdocumentResponse is the wire shape of a catalog entry. URL points at
// the authenticated download endpoint, never at raw storage.
type SubdocumentResponse struct {
	PublicID     string    `json:"publicId"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	SizeBytes    int64     `json:"sizeBytes"`
	PageCount    int       `json:"pageCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ListResponse wraps the catalog listing.
type ListResponse struct {
	Documents []SubdocumentResponse `json:"documents"`
}

// UploadResponse wraps the newly created document.
type UploadResponse struct {
	Message  string              `json:"message"`
	Document SubdocumentResponse `json:"document"`
}

// ExtractRequest selects pages of an existing document. Pages holds
// 1-based source page indices. Order, when present with the same length,
// holds 1-based positions into Pages and dictates the output sequence.
type ExtractRequest struct {
	PublicID string `json:"publicId"`
	Pages    []int  `json:"pages"`
	Order    []int  `json:"order,omitempty"`
}

// ExtractResponse wraps the extracted document.
type ExtractResponse struct {
	Message  string              `json:"message"`
	Document SubdocumentResponse `json:"document"`
}

// DownloadURLResponse carries a short-lived content reference.
type DownloadURLResponse struct {
	URL              string `json:"url"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}

// DeleteRequest identifies the document to remove.
type DeleteRequest struct {
	PublicID string `json:"publicId"`
}

func toResponse(doc Subdocument) SubdocumentResponse {
	return SubdocumentResponse{
		PublicID:     doc.PublicID,
		OriginalName: doc.OriginalName,
		URL:          "/api/v1/pdf/download?publicId=" + doc.PublicID,
		SizeBytes:    doc.SizeBytes,
		PageCount:    doc.PageCount,
		CreatedAt:    doc.CreatedAt,
	}
}
