package domain

import "time"

type Note struct {
	ID        string
	OwnerID   string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt *time.Time
	ExpiresAt *time.Time

	// Versions is newest first. Only populated by version-aware lookups.
	Versions []NoteVersion
}

// IsExpired reports whether the note's expiry lies strictly before now.
func (n *Note) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}

// LastModified is the instant the current title and content became current.
func (n *Note) LastModified() time.Time {
	if n.UpdatedAt != nil {
		return *n.UpdatedAt
	}
	return n.CreatedAt
}

// CreateNoteRequest requires both fields to be present; empty strings are
// accepted.
type CreateNoteRequest struct {
	Title     *string    `json:"title" validate:"required,max=255"`
	Content   *string    `json:"content" validate:"required"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=255"`
	Content *string `json:"content"`
}

type NoteResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type NoteWithVersionsResponse struct {
	NoteResponse
	PreviousVersions []PreviousVersion `json:"previousVersions"`
}

type PreviousVersion struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n *Note) ToResponse() *NoteResponse {
	return &NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (n *Note) ToVersionsResponse() *NoteWithVersionsResponse {
	versions := make([]PreviousVersion, 0, len(n.Versions))
	for _, v := range n.Versions {
		versions = append(versions, PreviousVersion{
			Title:     v.Title,
			Content:   v.Content,
			CreatedAt: v.CreatedAt,
		})
	}

	return &NoteWithVersionsResponse{
		NoteResponse:     *n.ToResponse(),
		PreviousVersions: versions,
	}
}
