package model

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role"`
	Name     string `json:"name" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CheckInRequest struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

type UpdatePresensiRequest struct {
	CheckIn  *string `json:"checkIn"`
	CheckOut *string `json:"checkOut"`
}

type ReportQuery struct {
	Email          string
	Name           string
	TanggalMulai   string
	TanggalSelesai string
}
