package plagiarism

import (
	"regexp"

	"github.com/RishiKendai/clonescope/internal/models"
)

// classifierRule pairs a category with the markers that identify it
type classifierRule struct {
	category models.Category
	pattern  *regexp.Regexp
}

// rules are evaluated in order; the first match wins. Markers are prefixes,
// so @ControllerAdvice still reads as a controller.
var rules = []classifierRule{
	{
		category: models.CategoryController,
		pattern:  regexp.MustCompile(`@(Rest)?Controller|@(Get|Post|Delete|Put|Patch|Request)Mapping`),
	},
	{
		category: models.CategoryService,
		pattern:  regexp.MustCompile(`@Service|@Injectable`),
	},
	{
		category: models.CategoryRepository,
		pattern:  regexp.MustCompile(`@Repository|findById\(|save\(`),
	},
	{
		category: models.CategoryEntity,
		pattern:  regexp.MustCompile(`@Entity`),
	},
}

// Classify maps the full text of a file to its logical layer
func Classify(content string) models.Category {
	if content == "" {
		return models.CategoryUnknown
	}
	for _, rule := range rules {
		if rule.pattern.MatchString(content) {
			return rule.category
		}
	}
	return models.CategoryUnknown
}
