package model

type Poem struct {
	ID      int    `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Title   string `json:"title,omitempty"`
	Author  string `json:"author,omitempty"`
	Content string `json:"content,omitempty"`
}

type Pairing struct {
	ID    int    `json:"id"`
	Basis string `json:"basis"`
	Poem  Poem   `json:"poem"`
}

// Painting is a gallery record. Index responses carry summaries (no pairings);
// the detail endpoint fills in Pairings and InfoURL.
type Painting struct {
	ID       int       `json:"id"`
	Name     string    `json:"name,omitempty"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Year     int       `json:"year"`
	Category string    `json:"category"`
	ImageURL string    `json:"image_url,omitempty"`
	InfoURL  string    `json:"info_url,omitempty"`
	Pairings []Pairing `json:"pairings,omitempty"`
}

func (p Painting) HasPairing(id int) bool {
	_, ok := p.PairingByID(id)
	return ok
}

func (p Painting) PairingByID(id int) (Pairing, bool) {
	for _, pr := range p.Pairings {
		if pr.ID == id {
			return pr, true
		}
	}
	return Pairing{}, false
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// IndexPage is one page of /api/index. Pagination is nil when the server omits it.
type IndexPage struct {
	Paintings  []Painting  `json:"paintings"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type PaintingDetail struct {
	Painting Painting `json:"painting"`
	ImageURL string   `json:"image_url,omitempty"`
}
