package generation

import genai "google.golang.org/genai"

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

// ProposalSchema is the response schema for proposal requests.
func ProposalSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":    str(),
			"ageGroup": str(),
			"characters": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":        str(),
						"description": str(),
					},
					Required: []string{"name", "description"},
				},
			},
			"setting": str(),
			"theme":   str(),
			"plotOutline": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"beginning": str(),
					"middle":    str(),
					"ending":    str(),
				},
				Required: []string{"beginning", "middle", "ending"},
			},
			"moral": str(),
		},
		Required: []string{"title", "ageGroup", "characters", "setting", "theme", "plotOutline", "moral"},
	}
}

// BookSchema is the response schema for book requests.
func BookSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":   str(),
			"summary": str(),
			"chapters": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"chapterNumber": {Type: genai.TypeInteger},
						"title":         str(),
						"content":       str(),
						"illustrationPlaceholder": {
							Type:        genai.TypeString,
							Description: "A visual description for an illustrator.",
						},
					},
					Required: []string{"chapterNumber", "title", "content"},
				},
			},
		},
		Required: []string{"title", "summary", "chapters"},
	}
}
