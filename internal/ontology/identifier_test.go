package ontology

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveID(t *testing.T) {
	tests := []struct {
		iri  string
		want string
	}{
		{"", NullID},
		{"https://example.com/fibo", "fibo"},
		{"https://example.com/fibo/", "fibo"},
		{"https://example.com/onto#", "onto"},
		{"  https://example.com/Finance-Onto  ", "finance-onto"},
		{"https://example.com/ontologies/pizza.owl", "pizza"},
		{"https://data.example.org", "data"},
		{"https://example.com", "example"},
		{"http://www.w3.org/2002/07/owl#", "owl"},
		{"http://purl.org/dc/terms/", "dcterms"},
		{"https://schema.org/", "schema"},
		{"https://example.com/my.ttl", "my"},
		{"https://example.com/acme.org", "acme"},
		{"urn:isbn:12345", "urnisbn12345"},
		{"https://example.com/.owl", NullID},
		{"Plain Name", "plainname"},
	}
	for _, tt := range tests {
		t.Run(tt.iri, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveID(tt.iri))
		})
	}
}

func TestDeriveIDCharset(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9_-]+$`)
	inputs := []string{
		"https://example.com/Ünïcode-Ontology",
		"https://example.com/a b c",
		"http://localhost:8080/",
		"ftp://files.example.net/x.rdf",
		"https://example.com/path/to/Some_Thing.xml",
		"#",
		"////",
	}
	for _, in := range inputs {
		id := DeriveID(in)
		assert.Regexp(t, valid, id, "input %q", in)
		assert.Equal(t, id, DeriveID(in), "DeriveID must be deterministic for %q", in)
	}
}

func TestRegisterMapping(t *testing.T) {
	RegisterMapping("https://w3id.org/example/core/", "excore")
	assert.Equal(t, "excore", DeriveID("https://w3id.org/example/core#"))
}
