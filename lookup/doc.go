// Package lookup provides the tables that translate integer keys to
// strings: document keys to external ids (minsketch.Resolver) and token ids
// to token strings (minhash.Vocabulary).
//
// Tables come from memory (Map), from tab-separated files (LoadTSV, plain or
// gzip-compressed), or from a SQLite database (SQLite).
//
// Two TSV layouts are supported:
//
//	keyed:      <index>\t<value>     e.g. a volume key table
//	positional: <value>[\t...]       row n (after the header) has key n
package lookup
