package rdf

// Namespace IRIs of the standard vocabularies.
const (
	NSRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	NSOWL     = "http://www.w3.org/2002/07/owl#"
	NSXSD     = "http://www.w3.org/2001/XMLSchema#"
	NSDCTerms = "http://purl.org/dc/terms/"
	NSSKOS    = "http://www.w3.org/2004/02/skos/core#"
	NSSchema  = "https://schema.org/"
	NSProv    = "http://www.w3.org/ns/prov#"
	NSFOAF    = "http://xmlns.com/foaf/0.1/"
)

// Frequently used terms.
const (
	RDFType         = NSRDF + "type"
	RDFLangString   = NSRDF + "langString"
	RDFSLabel       = NSRDFS + "label"
	RDFSComment     = NSRDFS + "comment"
	OWLOntology     = NSOWL + "Ontology"
	OWLVersionInfo  = NSOWL + "versionInfo"
	DCTermsTitle    = NSDCTerms + "title"
	DCTermsDesc     = NSDCTerms + "description"
	XSDString       = NSXSD + "string"
	ProvDerivedFrom = NSProv + "wasDerivedFrom"
)

// StandardPrefixes maps prefixes to the vocabularies every serialized graph
// may use.
var StandardPrefixes = map[string]string{
	"rdf":     NSRDF,
	"rdfs":    NSRDFS,
	"owl":     NSOWL,
	"xsd":     NSXSD,
	"dcterms": NSDCTerms,
	"skos":    NSSKOS,
	"schema":  NSSchema,
	"prov":    NSProv,
	"foaf":    NSFOAF,
}

// StandardNamespaces returns the standard vocabulary namespaces.
func StandardNamespaces() []string {
	out := make([]string, 0, len(StandardPrefixes))
	for _, ns := range StandardPrefixes {
		out = append(out, ns)
	}
	return out
}
