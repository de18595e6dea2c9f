package gemini

import (
	"regexp"
	"strings"
)

var (
	objectRe = regexp.MustCompile(`\{[\s\S]*\}`)
	arrayRe  = regexp.MustCompile(`\[[\s\S]*\]`)
)

// ExtractObject recorta o primeiro "{" até o último "}" do texto gerado
// (o modelo costuma embrulhar o JSON em markdown ou prosa quando a busca está ativa).
func ExtractObject(text string) string {
	if m := objectRe.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}

// ExtractArray faz o mesmo para listas JSON.
func ExtractArray(text string) string {
	if m := arrayRe.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}

// DedupSources remove fontes repetidas pela URI, mantendo a última ocorrência na posição da primeira.
func DedupSources(in []Source) []Source {
	idx := map[string]int{}
	out := make([]Source, 0, len(in))
	for _, s := range in {
		if i, ok := idx[s.URI]; ok {
			out[i] = s
			continue
		}
		idx[s.URI] = len(out)
		out = append(out, s)
	}
	return out
}
