package classifier

// synonymGroups maps a canonical term to its alternatives. Both the
// canonical term and every alternative resolve to the canonical key.
var synonymGroups = map[string][]string{
	"create":    {"make", "build", "generate", "new", "add", "compose"},
	"delete":    {"remove", "erase", "trash", "discard", "drop"},
	"find":      {"search", "locate", "lookup", "look"},
	"show":      {"display", "view", "list", "print"},
	"open":      {"launch", "start", "run"},
	"close":     {"exit", "quit", "stop", "end"},
	"send":      {"email", "mail", "message", "notify"},
	"schedule":  {"remind", "plan", "book"},
	"change":    {"modify", "edit", "update", "alter"},
	"check":     {"verify", "confirm", "inspect"},
	"help":      {"assist", "support"},
	"time":      {"clock", "hour"},
	"file":      {"document", "doc"},
	"directory": {"folder", "dir"},
	"weather":   {"forecast", "temperature"},
	"calculate": {"compute", "sum", "total"},
}

var synonymIndex = buildSynonymIndex()

func buildSynonymIndex() map[string]string {
	idx := make(map[string]string)
	for canonical, alts := range synonymGroups {
		idx[canonical] = canonical
		for _, alt := range alts {
			idx[alt] = canonical
		}
	}
	return idx
}

// canonicalSynonym returns tok's canonical form if it's part of a synonym
// group, or tok unchanged otherwise.
func canonicalSynonym(tok string) string {
	if canonical, ok := synonymIndex[tok]; ok {
		return canonical
	}
	return tok
}
