// Package report renders, publishes and archives the outcome of a run.
//
// A Run collects one equiv.Result per operation plus run metadata. It can be
// rendered as markdown (Render), as JSON (RenderJSON) or as a styled terminal
// summary (Summary).
//
//	var buf bytes.Buffer
//	if err := report.Render(&buf, cat, backends, run); err != nil {
//	    return err
//	}
//
// # Publishing
//
// Publish writes a document to a local path or to s3://bucket/key:
//
//	err := report.Publish(ctx, "s3://reports/catalog.md", buf.Bytes(), report.S3Options{Region: "eu-west-1"})
//
// # Archive
//
// An Archive is a git repository (on disk or in memory) holding one commit
// per archived report:
//
//	archive, _ := report.OpenArchive("./reports")
//	hash, err := archive.Commit("catalog.md", buf.Bytes(), "run "+run.ID, identity)
//
// # Attestation
//
// Attest signs an HS256 JWT carrying the run id, the pass flag and the
// SHA-256 of the document; VerifyAttestation checks it.
package report
