package model

type LeadRequestBody struct {
	Tet        int     `json:"tet"`
	From       []int   `json:"from"`
	To         []int   `json:"to"`
	Floor      *int    `json:"floor,omitempty"`
	Exclusions [][]int `json:"exclusions,omitempty"`
}

type LeadResponse struct {
	Displacement int     `json:"displacement"`
	Mappings     [][]int `json:"mappings"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
