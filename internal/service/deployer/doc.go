// Package deployer orchestrates a single deployment to a Venus OS device.
//
// The sequence is strictly linear: validate tools and inputs, build the
// filtered archive, upload it over scp, then run one composite fail-fast
// shell command on the target that optionally backs up the previous
// install, replaces the target directory and removes the uploaded archive.
// The local temporary archive is deleted on every exit path.
package deployer
