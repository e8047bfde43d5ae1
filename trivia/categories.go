package trivia

import "strings"

// Category pairs a canonical category display name with the numeric id the
// trivia API uses for it.
type Category struct {
	Name string
	ID   int
}

// Categories is the static table of trivia API categories, in display order.
var Categories = []Category{
	{"General Knowledge", 9},
	{"Books", 10},
	{"Film", 11},
	{"Music", 12},
	{"Musicals & Theatres", 13},
	{"Television", 14},
	{"Video Games", 15},
	{"Board Games", 16},
	{"Science & Nature", 17},
	{"Computers", 18},
	{"Mathematics", 19},
	{"Mythology", 20},
	{"Sports", 21},
	{"Geography", 22},
	{"History", 23},
	{"Politics", 24},
	{"Art", 25},
	{"Celebrities", 26},
	{"Animals", 27},
	{"Vehicles", 28},
	{"Comics", 29},
	{"Gadgets", 30},
	{"Japanese Anime & Manga", 31},
	{"Cartoon & Animations", 32},
}

// CategoryNames returns the canonical category names in table order.
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}

// CategoryID returns the numeric id for a canonical category name, or 0 if
// the name is unknown. The API treats 0 as an invalid category and reports
// no matching questions.
func CategoryID(name string) int {
	for _, c := range Categories {
		if c.Name == name {
			return c.ID
		}
	}
	return 0
}

// ResolveCategory matches partial case-insensitively against all canonical
// category names and returns every match, in table order.
func ResolveCategory(partial string) []string {
	partial = strings.ToLower(partial)
	var matches []string
	for _, c := range Categories {
		if strings.Contains(strings.ToLower(c.Name), partial) {
			matches = append(matches, c.Name)
		}
	}
	return matches
}

// ResolveDifficulty maps user input to one of easy, medium or hard. "ez" is
// accepted as easy; otherwise any unique prefix works. Returns "" when the
// input matches zero or several difficulties.
func ResolveDifficulty(d string) string {
	d = strings.ToLower(d)
	if d == "ez" {
		return "easy"
	}
	var matches []string
	for _, diff := range []string{"easy", "medium", "hard"} {
		if strings.HasPrefix(diff, d) {
			matches = append(matches, diff)
		}
	}
	if len(matches) != 1 {
		return ""
	}
	return matches[0]
}
