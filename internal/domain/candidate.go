package domain

// CandidateListing is one raw doctor/clinic entry as scraped from a listings
// page. Rating and review counts arrive as free text ("4.5", "N/A", "1,203")
// and are only coerced to numbers by the ranking engine.
type CandidateListing struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Rating  string `json:"rating"`
	Reviews string `json:"reviews"`
}

// Candidate is a scored doctor/clinic recommendation. Score is in [0,1] and is
// assigned only by the ranking engine.
type Candidate struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   string  `json:"phone"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
	Score   float64 `json:"score"`
}
