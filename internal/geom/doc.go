// Package geom provides the planar geometry shared by the drive code.
//
// Positions are [r2.Point] values in meters and headings are [s1.Angle]
// values in radians, both from github.com/golang/geo:
//
//   - [Pose]: field position plus heading, treated as an immutable snapshot
//   - [Twist]: constant-velocity motion over one period (pose log/exp)
//   - [Rotate], [Bearing]: frame changes and "face this point" angles
//
// # Angles
//
// s1.Angle.Normalized wraps into (-π, π], so a difference of exactly -π
// always comes back as +π. The heading controller relies on that to avoid
// flipping direction at the boundary.
package geom
