package ingest

import (
	"strings"
	"unicode"
)

// Info is what the question pipeline needs from a resume or transcript.
type Info struct {
	Skills []string `json:"skills"`
}

// longest alias, in words
const maxPhraseWords = 3

// skillAliases maps a lowercase token or phrase to its display name.
var skillAliases = map[string]string{
	// languages
	"go":         "Go",
	"golang":     "Go",
	"python":     "Python",
	"java":       "Java",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"c++":        "C++",
	"cpp":        "C++",
	"c#":         "C#",
	"csharp":     "C#",
	"rust":       "Rust",
	"ruby":       "Ruby",
	"php":        "PHP",
	"kotlin":     "Kotlin",
	"swift":      "Swift",
	"scala":      "Scala",
	"sql":        "SQL",
	"bash":       "Bash",
	"html":       "HTML",
	"css":        "CSS",

	// frameworks and runtimes
	"react":        "React",
	"react.js":     "React",
	"reactjs":      "React",
	"angular":      "Angular",
	"vue":          "Vue.js",
	"vue.js":       "Vue.js",
	"node.js":      "Node.js",
	"nodejs":       "Node.js",
	"django":       "Django",
	"flask":        "Flask",
	"fastapi":      "FastAPI",
	"spring":       "Spring",
	"spring boot":  "Spring Boot",
	".net":         ".NET",
	"dotnet":       ".NET",
	"gin":          "Gin",
	"next.js":      "Next.js",
	"nextjs":       "Next.js",
	"tensorflow":   "TensorFlow",
	"pytorch":      "PyTorch",
	"keras":        "Keras",
	"scikit-learn": "scikit-learn",
	"sklearn":      "scikit-learn",
	"pandas":       "Pandas",
	"numpy":        "NumPy",

	// data
	"postgresql":    "PostgreSQL",
	"postgres":      "PostgreSQL",
	"mysql":         "MySQL",
	"mongodb":       "MongoDB",
	"mongo":         "MongoDB",
	"redis":         "Redis",
	"elasticsearch": "Elasticsearch",
	"kafka":         "Kafka",
	"rabbitmq":      "RabbitMQ",
	"sqlite":        "SQLite",
	"graphql":       "GraphQL",

	// infrastructure
	"docker":     "Docker",
	"kubernetes": "Kubernetes",
	"k8s":        "Kubernetes",
	"aws":        "AWS",
	"azure":      "Azure",
	"gcp":        "GCP",
	"terraform":  "Terraform",
	"linux":      "Linux",
	"git":        "Git",
	"jenkins":    "Jenkins",
	"ci/cd":      "CI/CD",
	"nginx":      "Nginx",
	"grpc":       "gRPC",

	// practices
	"machine learning":    "Machine Learning",
	"ml":                  "Machine Learning",
	"deep learning":       "Deep Learning",
	"nlp":                 "NLP",
	"computer vision":     "Computer Vision",
	"data structures":     "Data Structures",
	"algorithms":          "Algorithms",
	"microservices":       "Microservices",
	"system design":       "System Design",
	"distributed systems": "Distributed Systems",
	"unit testing":        "Unit Testing",
	"agile":               "Agile",
	"rest api":            "REST",
	"restful":             "REST",
}

// ambiguousAliases are skill names that are also everyday English words.
// They only count when the text reads as technical around them.
var ambiguousAliases = map[string]bool{
	"go":     true,
	"swift":  true,
	"rust":   true,
	"spring": true,
	"gin":    true,
	"react":  true,
}

// contextWords mark a nearby ambiguous alias as a technology.
var contextWords = map[string]bool{
	"developer": true, "developers": true, "development": true,
	"engineer": true, "engineering": true, "programming": true,
	"programmer": true, "language": true, "languages": true,
	"backend": true, "frontend": true, "framework": true,
	"code": true, "coding": true, "stack": true, "services": true,
	"api": true, "apis": true, "modules": true, "concurrency": true,
	"goroutines": true, "sdk": true, "library": true, "libraries": true,
}

// how many tokens either side are searched for technical context
const contextWindow = 2

type token struct {
	text  string // lowercased
	raw   string
	start bool // first word of a sentence or line
}

// ExtractInfo finds known technical skills in text. Skills come out in order of
// first appearance, each once. The slice is never nil.
func ExtractInfo(text string) Info {
	tokens := tokenize(text)
	skills := make([]string, 0)
	seen := make(map[string]struct{})

	for i := 0; i < len(tokens); {
		matched := 1
		// longest phrase wins, so "spring boot" beats "spring"
		for n := maxPhraseWords; n >= 1; n-- {
			if i+n > len(tokens) {
				continue
			}
			phrase := joinTokens(tokens[i : i+n])
			name, ok := skillAliases[phrase]
			if !ok {
				continue
			}
			if n == 1 && ambiguousAliases[phrase] && !technicalUse(tokens, i) {
				continue
			}
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				skills = append(skills, name)
			}
			matched = n
			break
		}
		i += matched
	}

	return Info{Skills: skills}
}

// technicalUse decides whether the ambiguous token at i names the technology.
// A context word or another unambiguous skill nearby is enough. Without one,
// the word must be capitalized where a sentence does not force it ("moved to
// Go" but not "Go ahead").
func technicalUse(tokens []token, i int) bool {
	lo, hi := max(0, i-contextWindow), min(len(tokens)-1, i+contextWindow)
	for j := lo; j <= hi; j++ {
		if j == i {
			continue
		}
		t := tokens[j].text
		if contextWords[t] {
			return true
		}
		if _, ok := skillAliases[t]; ok && !ambiguousAliases[t] {
			return true
		}
	}

	tok := tokens[i]
	return !tok.start && tok.raw != tok.text
}

func joinTokens(tokens []token) string {
	if len(tokens) == 1 {
		return tokens[0].text
	}
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}

// tokenize splits text on anything that cannot be part of a skill name.
// '+', '#', '.', '/' and '-' survive inside a token. Tokens after '.', '!',
// '?', ':' or a newline are marked as sentence starts.
func tokenize(text string) []token {
	var (
		out   []token
		field strings.Builder
		start = true
	)

	flush := func() {
		f := field.String()
		field.Reset()

		// sentence punctuation, but keep ".net"
		raw := strings.TrimLeft(strings.TrimRight(f, ".-/"), "-/")
		if raw != "" {
			out = append(out, token{text: strings.ToLower(raw), raw: raw, start: start})
			start = false
		}
		if strings.HasSuffix(f, ".") {
			start = true
		}
	}

	for _, r := range text {
		if isTokenRune(r) {
			field.WriteRune(r)
			continue
		}
		flush()
		switch r {
		case '!', '?', ':', ';', '\n', '\u2022':
			start = true
		}
	}
	flush()

	return out
}

func isTokenRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '+', '#', '.', '/', '-':
		return true
	}
	return false
}
