package repository

import "testing"

func TestDBDialectNameDefaultsToSQLite(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db dialect want sqlite got %s", got)
	}
}

func TestLikeOperatorByDialect(t *testing.T) {
	cases := map[string]string{
		"postgres":   "ILIKE",
		"postgresql": "ILIKE",
		"sqlite":     "LIKE",
		"":           "LIKE",
		" Postgres ": "ILIKE",
	}
	for dialect, want := range cases {
		if got := likeOperatorByDialect(dialect); got != want {
			t.Fatalf("dialect %q want %s got %s", dialect, want, got)
		}
	}
}
