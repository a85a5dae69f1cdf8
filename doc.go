// Package factcheck verifies short numeric claims against a corpus of
// official statements.
//
// A Checker ties the pieces together: the ingestion pipeline turns CSV rows
// and saved press release pages into embedded fact records, the records are
// persisted as one snapshot in BadgerDB and served from memory, and every
// claim goes through extraction, retrieval and the verdict policy.
//
//	checker, err := factcheck.Open("./facts_db")
//	if err != nil {
//		return err
//	}
//	defer checker.Close()
//
//	if _, err := checker.Rebuild(ctx, ingestion.NewCSVSource("pib.csv")); err != nil {
//		return err
//	}
//	v := checker.Verify(ctx, "NBA released 39.84 crore for scheme X")
//	fmt.Println(v.Label, v.Confidence, v.Reference())
//
// Verify never fails. Missing or unreachable evidence yields an
// Unverifiable verdict with reason NoEvidence.
package factcheck
