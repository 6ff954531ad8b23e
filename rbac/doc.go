// Package rbac evaluates a caller's role claim against a required capability.
//
// # Model
//
// Roles are a flat enumeration (user, moderator, admin) with rank implication:
// admin satisfies every moderator requirement, moderator satisfies every user
// requirement. Capabilities map to a minimum role in a static table fixed at
// construction. There is no inheritance graph and no dynamic role storage —
// the table is data, decisions are pure functions.
//
// # What this package must NOT do
//
//   - Perform I/O of any kind; Authorize must stay allocation-free.
//   - Mutate the capability table after construction.
//   - Import any other authcore package.
package rbac
