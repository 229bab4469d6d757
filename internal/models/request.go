package models

// IPRequest is the body of a search by proceeding number
// @Description Search by enforcement proceeding number
type IPRequest struct {
	// Proceeding number, e.g. 123/45/67890-ИП
	IPNumber string `json:"ip_number" binding:"required" example:"342956/24/23060-ИП"`
}

// PersonRequest is the body of a search by debtor
// @Description Search by debtor full name and birth date
type PersonRequest struct {
	LastName   string `json:"last_name" binding:"required" example:"Иванов"`
	FirstName  string `json:"first_name" binding:"required" example:"Иван"`
	Patronymic string `json:"patronymic,omitempty" example:"Иванович"`
	// Birth date in DD.MM.YYYY
	Birthday string `json:"birthday" binding:"required" example:"01.01.1980"`
}

// INNRequest is the body of a search by taxpayer number
// @Description Search by INN (10 or 12 digits)
type INNRequest struct {
	INN string `json:"inn" binding:"required" example:"7707083893"`
}

// LegacyIPRequest is the proceeding number body accepted under /api
type LegacyIPRequest struct {
	IP string `json:"ip" binding:"required" example:"342956/24/23060-ИП"`
}
