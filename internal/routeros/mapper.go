package routeros

import (
	"sort"
	"strings"

	goros "github.com/go-routeros/routeros/v3"
	"github.com/go-routeros/routeros/v3/proto"
)

// mapReplyRows flattens every !re sentence into a field map.
func mapReplyRows(reply *goros.Reply) []map[string]string {
	if reply == nil {
		return []map[string]string{}
	}
	rows := make([]map[string]string, 0, len(reply.Re))
	for _, sentence := range reply.Re {
		rows = append(rows, sentenceFields(sentence))
	}
	return rows
}

// sentenceFields prefers the ordered pair list and falls back to the map
// for words the list does not carry.
func sentenceFields(sentence *proto.Sentence) map[string]string {
	if sentence == nil {
		return map[string]string{}
	}
	fields := make(map[string]string, len(sentence.List)+len(sentence.Map))
	for key, value := range sentence.Map {
		fields[key] = value
	}
	for _, pair := range sentence.List {
		fields[pair.Key] = pair.Value
	}
	return fields
}

// mapParams turns named parameters into API words, sorted by key.
func mapParams(params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if strings.TrimSpace(key) != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	words := make([]string, len(keys))
	for i, key := range keys {
		words[i] = apiWord(strings.TrimSpace(key), params[key])
	}
	return words
}

// apiWord renders "?key=value" for query words and "=key=value" otherwise.
func apiWord(key, value string) string {
	if strings.HasPrefix(key, "?") {
		return key + "=" + value
	}
	return "=" + strings.TrimPrefix(key, "=") + "=" + value
}
