package catalog

// SeedStories is the built-in story collection shown on the wall before any
// live story arrives.
var SeedStories = []Item{
	{
		ID:    "seed-1",
		Title: "Smiles After Surgery",
		Content: "Thanks to quick coordination and donor support, Amal received urgent surgery " +
			"and is recovering well. The medical team worked around the clock to ensure she had " +
			"the best care possible.",
		AuthorName:  "Jamal Awad",
		CaseTitle:   "Post-op Care - Amal",
		StoryType:   "success",
		Tags:        []string{"health", "surgery", "recovery"},
		LikeCount:   12,
		PublishedAt: "2024-01-15T00:00:00Z",
	},
	{
		ID:    "seed-2",
		Title: "School Supplies Delivered",
		Content: "Volunteer team delivered backpacks and books to 20 students starting the new " +
			"term with confidence. Each backpack contained notebooks, pencils, and a special note " +
			"of encouragement.",
		AuthorName:  "Mona Malik",
		CaseTitle:   "Education Support",
		StoryType:   "progress",
		Tags:        []string{"education", "supplies"},
		LikeCount:   9,
		PublishedAt: "2024-01-12T00:00:00Z",
	},
	{
		ID:    "seed-3",
		Title: "A New Beginning for Amira",
		Content: "When I first met Amira, she was struggling with her studies and feeling " +
			"isolated. Through our mentorship program, we worked together on building her " +
			"confidence. Today, she's excelling in school and has made wonderful friends. Seeing " +
			"her smile and enthusiasm for learning reminds me why I volunteer.",
		AuthorName:  "Sarah Ahmed",
		CaseTitle:   "Educational Support - Amira K.",
		StoryType:   "success",
		Tags:        []string{"education", "mentorship", "confidence"},
		LikeCount:   24,
		PublishedAt: "2024-01-10T00:00:00Z",
	},
	{
		ID:    "seed-4",
		Title: "Building Bridges Through Art",
		Content: "Omar came to us withdrawn and struggling to express himself. We introduced him " +
			"to art therapy, and the transformation has been incredible. His paintings now tell " +
			"stories of hope and resilience. Art became his voice when words failed him.",
		AuthorName:  "Layla Mahmoud",
		CaseTitle:   "Emotional Support - Omar T.",
		StoryType:   "breakthrough",
		Tags:        []string{"art therapy", "emotional support", "creativity"},
		LikeCount:   31,
		PublishedAt: "2024-01-08T00:00:00Z",
	},
	{
		ID:    "seed-5",
		Title: "From Fear to Friendship",
		Content: "Nour was afraid to interact with other children due to past trauma. Through " +
			"patient support and group activities, she slowly opened up. Last week, she organized " +
			"a small party for her new friends. Her journey from isolation to leadership inspires " +
			"us all.",
		AuthorName:  "Omar Hassan",
		CaseTitle:   "Social Integration - Nour M.",
		StoryType:   "progress",
		Tags:        []string{"social skills", "trauma recovery", "leadership"},
		LikeCount:   18,
		PublishedAt: "2024-01-05T00:00:00Z",
	},
}

// FilterStoriesByType narrows a story feed by story type; "all" or empty
// returns the feed unchanged.
func FilterStoriesByType(stories []Item, storyType string) []Item {
	if storyType == "" || storyType == "all" {
		return stories
	}
	out := make([]Item, 0, len(stories))
	for _, s := range stories {
		if s.StoryType != "" && s.StoryType == storyType {
			out = append(out, s)
		}
	}
	return out
}
