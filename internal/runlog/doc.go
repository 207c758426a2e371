// Package runlog defines the durable JSON record of a download run and the
// triage operations over it.
//
// A run log is the sole checkpoint mechanism of the pipeline: it records the
// invocation arguments verbatim, one outcome per attempted UID, and summary
// counts, and it is written once after the whole batch completes. Later
// invocations resume work by reading a prior log, never by inspecting the
// output tree.
//
// # Log kinds
//
//   - [RunLog]: produced by shard and fetch runs. Success outcomes carry the
//     artifact paths; failures carry the error text under an "error" key.
//   - [RetryLog]: produced by the retry driver. Each entry records the final
//     status, the attempts used, and the original failure for lineage.
//   - [FilteredLog]: one partition (success or failed) of a RunLog, with the
//     counts of both partitions preserved for audit.
//
// # Wire format
//
//	{
//	  "args": {"start": 0, "end": 1000, "workers": 4, ...},
//	  "results": {
//	    "<uid>": {"glb": "...", "metadata": "...", "thumbnail": null},
//	    "<uid>": {"error": "fetch asset: ..."}
//	  },
//	  "summary": {"total": 1000, "success": 998, "failed": 2}
//	}
//
// Success is defined by the absence of the "error" key, not by a status
// field; [Outcome] preserves that contract while giving Go callers an
// explicit tagged variant.
package runlog
