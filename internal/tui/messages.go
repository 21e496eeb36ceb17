package tui

type SetupSubmitMsg struct {
	KhojURL      string
	VaultDir     string
	OpenAIAPIKey string
}

type SetupErrorMsg struct {
	Error string
}

type SearchResultsMsg struct {
	Results []SearchResult
}

type SearchErrorMsg struct {
	Error string
}

type SearchResult struct {
	Rank    int
	Score   float64
	Path    string
	Heading string
	Snippet string
}
