// Package avatar stores user avatar images on the local filesystem and
// builds Gravatar URLs for users who have not uploaded one.
package avatar
