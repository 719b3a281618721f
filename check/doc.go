// Package check contains the decision stages of the email rule: the local
// syntax gate and the mode-gated rejections applied to a remote result.
// The stages can be used directly, but the recommended entry point is the
// Validator in github.com/optimode/emailrule.
package check
