package assistant

import "ai-helpdesk-be/pkg/knowledge"

// VerifySources returns the cited sources whose doc_id was not part of the supplied context.
func VerifySources(answer *StructuredAnswer, records []knowledge.Record) []Source {
	if answer == nil {
		return nil
	}
	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.DocID] = struct{}{}
	}

	var unverified []Source
	for _, s := range answer.Sources {
		if _, ok := known[s.DocID]; !ok {
			unverified = append(unverified, s)
		}
	}
	return unverified
}
