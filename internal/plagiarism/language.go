package plagiarism

import (
	"path"
	"strings"
)

const unknownLanguage = "Unknown"

var languageByExtension = map[string]string{
	"sh":    "bash",
	"bash":  "bash",
	"c":     "c",
	"h":     "c/cpp",
	"cpp":   "cpp",
	"hpp":   "cpp",
	"cc":    "cpp",
	"cp":    "cpp",
	"cxx":   "cpp",
	"c++":   "cpp",
	"hh":    "cpp",
	"hxx":   "cpp",
	"h++":   "cpp",
	"cs":    "c-sharp",
	"csx":   "c-sharp",
	"go":    "go",
	"py":    "python",
	"py3":   "python",
	"php":   "php",
	"php3":  "php",
	"php4":  "php",
	"php5":  "php",
	"php7":  "php",
	"phps":  "php",
	"phpt":  "php",
	"phtml": "php",
	"mo":    "modelica",
	"mos":   "modelica",
	"java":  "java",
	"kt":    "kotlin",
	"js":    "javascript",
	"elm":   "elm",
	"r":     "r",
	"rdata": "r",
	"rds":   "r",
	"rda":   "r",
	"scala": "scala",
	"sc":    "scala",
	"sql":   "sql",
	"ts":    "typescript",
	"tsx":   "tsx",
	"v":     "verilog",
	"vh":    "verilog",
}

// DetectLanguage maps a file path to a language by its extension
func DetectLanguage(filepath string) string {
	ext := path.Ext(filepath)
	if ext == "" {
		return unknownLanguage
	}
	if lang, ok := languageByExtension[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return lang
	}
	return unknownLanguage
}
