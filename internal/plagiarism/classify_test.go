package plagiarism

import (
	"testing"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    models.Category
	}{
		{name: "empty content", content: "", want: models.CategoryUnknown},
		{name: "plain class", content: "public class Util {}", want: models.CategoryUnknown},
		{name: "rest controller", content: "@RestController\npublic class A {}", want: models.CategoryController},
		{name: "mapping only", content: "@GetMapping(\"/x\")\npublic X get() {}", want: models.CategoryController},
		{name: "service", content: "@Service\npublic class S {}", want: models.CategoryService},
		{name: "injectable", content: "@Injectable()\nexport class S {}", want: models.CategoryService},
		{name: "repository annotation", content: "@Repository\ninterface R {}", want: models.CategoryRepository},
		{name: "repository by call", content: "return repo.findById(id);", want: models.CategoryRepository},
		{name: "entity", content: "@Entity\npublic class User {}", want: models.CategoryEntity},
		{
			name:    "controller wins over lower precedence markers",
			content: "@Controller\n@Service\n@Entity\nclass Mixed { void f() { repo.save(x); } }",
			want:    models.CategoryController,
		},
		{name: "service wins over repository", content: "@Service\nclass S { void f() { repo.save(x); } }", want: models.CategoryService},
		{name: "controller advice", content: "@ControllerAdvice\npublic class Handlers {}", want: models.CategoryController},
		{name: "entity listeners", content: "@EntityListeners(Audit.class)\npublic class User {}", want: models.CategoryEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			got := Classify(tt.content)

			// then
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	t.Run("should map known extensions", func(t *testing.T) {
		assert.Equal(t, "java", DetectLanguage("src/main/java/App.java"))
		assert.Equal(t, "Unknown", DetectLanguage("README"))
	})
}
