// Package coupon models discount codes and their redemption rules.
//
// Evaluation is pure: Coupon.Evaluate decides whether a code applies to a
// cart at a given instant and what discount it grants. Counting a
// redemption is not done here; the usage cap is enforced by the storage
// layer with a single conditional increment.
package coupon
