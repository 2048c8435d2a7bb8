package dto

// AdminStatsResponse answers GET /admin/stats
type AdminStatsResponse struct {
	TotalBiodata   int64 `json:"totalBiodata"`
	MaleBiodata    int64 `json:"maleBiodata"`
	FemaleBiodata  int64 `json:"femaleBiodata"`
	PremiumBiodata int64 `json:"premiumBiodata"`
	TotalPayments  int64 `json:"totalPayments"`
	SuccessStories int64 `json:"successStories"`
}
