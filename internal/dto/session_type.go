package dto

// CreateSessionTypeRequest adds a catalog entry.
type CreateSessionTypeRequest struct {
	Name         string  `json:"name" validate:"required"`
	Duration     int     `json:"duration" validate:"required,min=5,max=480"`
	BufferBefore int     `json:"buffer_before" validate:"min=0,max=120"`
	BufferAfter  int     `json:"buffer_after" validate:"min=0,max=120"`
	Color        string  `json:"color"`
	Price        float64 `json:"price" validate:"min=0"`
}

// UpdateSessionTypeRequest edits display metadata. Duration and buffers stay
// editable on the catalog row; booked sessions keep their snapshot.
type UpdateSessionTypeRequest struct {
	Name         *string  `json:"name,omitempty"`
	Duration     *int     `json:"duration,omitempty" validate:"omitempty,min=5,max=480"`
	BufferBefore *int     `json:"buffer_before,omitempty" validate:"omitempty,min=0,max=120"`
	BufferAfter  *int     `json:"buffer_after,omitempty" validate:"omitempty,min=0,max=120"`
	Color        *string  `json:"color,omitempty"`
	Price        *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
}
