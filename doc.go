// Package refbundle bundles interface-definition documents (OpenAPI and JSON
// Schema style YAML or JSON) that reference each other by "$ref" pointer.
//
// Given a root document, Bundle computes the closure of named types reachable
// from it, copies the foreign members of that closure into the root's
// definitions container and rewrites every reference to one addressing
// scheme, chosen by a Policy:
//
//   - Local: inlined types are addressed as "#/<container>/<Name>".
//   - Namespaced: every reachable type is gathered under one prefix such as
//     "$defs".
//   - PathAdjusted: nothing is inlined; cross-document references keep
//     pointing at their documents with paths corrected for the output
//     location.
//
// Design policy:
//   - Keep only the public API in the root package; document loading lives in
//     document/, pointer grammar and traversal in ref/, the error taxonomy in
//     diag/ and the CLI under cmd/refbundle.
//   - Unresolvable references are warnings in a diag.Report unless
//     Options.Strict is set. Malformed documents and the depth guard always
//     abort.
//
// Typical usage:
//
//	store := document.NewOSStore("api")
//	opts := refbundle.DefaultOptions()
//	opts.Output = "schemas/Generated/account-resolved.yaml"
//	res, err := refbundle.Bundle(store, "schemas/account.yaml", opts)
//	out, err := res.Encode()
package refbundle
