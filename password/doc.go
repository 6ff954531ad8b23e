// Package password is the bundled Argon2id implementation of the engine's
// opaque credential-verification boundary. The engine treats hashing as an
// external primitive; deployments with an existing hash scheme plug in their
// own verifier and never import this package.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Timing
//
// Verify is constant-time over the computed digest. [Hasher.DummyVerify]
// burns the same Argon2 cost against a fixed hash so login attempts for
// unknown identifiers are indistinguishable from wrong-password attempts.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext, receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords or hash parameters.
package password
