package entity

import (
	"sort"
	"strings"
)

// CategoryMap maps a category name to the keywords that indicate it.
// Keywords are matched case-insensitively as substrings.
type CategoryMap map[string][]string

// Keywords returns the distinct lowercase keywords across all categories, sorted.
func (m CategoryMap) Keywords() []string {
	seen := make(map[string]struct{})
	for _, kws := range m {
		for _, kw := range kws {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			seen[kw] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for kw := range seen {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Names returns the category names, sorted.
func (m CategoryMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the map.
func (m CategoryMap) Clone() CategoryMap {
	out := make(CategoryMap, len(m))
	for name, kws := range m {
		out[name] = append([]string(nil), kws...)
	}
	return out
}

// DefaultCategoryMap returns the built-in technology categories.
func DefaultCategoryMap() CategoryMap {
	return CategoryMap{
		"Web Development": {
			"html", "css", "javascript", "php", "wordpress", "drupal", "laravel",
			"react", "angular", "vue", "node.js", "front-end", "back-end", "full-stack", "web",
		},
		"Mobile Development": {
			"android", "ios", "swift", "kotlin", "react native", "flutter",
			"mobile app", "mobile development",
		},
		"DevOps": {
			"devops", "docker", "kubernetes", "aws", "azure", "cloud", "ci/cd",
			"jenkins", "terraform", "ansible", "infrastructure",
		},
		"Data Science": {
			"data science", "machine learning", "ai", "artificial intelligence",
			"big data", "analytics", "data mining", "data visualization", "statistics",
		},
		"Security": {
			"security", "cybersecurity", "infosec", "hacking", "penetration testing",
			"encryption", "firewall", "compliance",
		},
		"Blockchain": {
			"blockchain", "cryptocurrency", "bitcoin", "ethereum", "smart contracts", "web3", "nft",
		},
		"UI/UX Design": {
			"ui", "ux", "user interface", "user experience", "design", "wireframe",
			"prototype", "figma", "sketch",
		},
		"Project Management": {
			"agile", "scrum", "kanban", "project management", "product management", "pm", "pmo",
		},
		"Database": {
			"sql", "nosql", "database", "mongodb", "postgresql", "mysql", "oracle", "sql server", "redis",
		},
		"QA & Testing": {
			"qa", "testing", "quality assurance", "test automation", "selenium", "cypress", "jest", "unit test",
		},
		"IoT": {
			"iot", "internet of things", "embedded systems", "arduino", "raspberry pi", "sensors",
		},
		"AR/VR": {
			"ar", "vr", "augmented reality", "virtual reality", "metaverse", "unity", "unreal",
		},
		"Networking": {
			"networking", "network", "cisco", "router", "switch", "firewall", "vpn", "dns",
		},
		"Languages & Frameworks": {
			"python", "java", "c#", ".net", "ruby", "go", "rust", "scala", "typescript",
		},
	}
}
