// Package records persists deployment records, the ledger that makes a
// deployment re-runnable: before deploying a resource the provisioner looks
// up its record and reuses the recorded proxy if it still has code.
//
// # Store URI Format
//
// Stores are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file://./deployments
//   - s3://bucket-name/prefix/?region=us-west-2
//
// Several locations separated by commas are mirrored by a MultiStore:
//
//	file://./deployments,s3://bucket-name/prefix/?region=us-west-2
//
// Reads try each location in order; writes must succeed everywhere.
//
// # Layout
//
// Every record is a JSON document stored under <network>/<name>.json:
//
//	{
//	  "network": "arbitrum",
//	  "name": "VestaInterestManager",
//	  "template": "VestaInterestManager",
//	  "address": "0x...",
//	  "implementation": "0x...",
//	  "tx_hash": "0x...",
//	  "block_number": 123,
//	  "deployed_at": "2023-01-01T00:00:00Z"
//	}
//
// # S3 Storage
//
// The S3Store keeps records in any S3-compatible bucket, so that several
// operators share one view of what is deployed. Credentials may be embedded in
// the URI (s3://KEY:SECRET@bucket/prefix) or come from the AWS default chain.
// Set path_style=true for MinIO and similar services.
package records
