package drivetrain

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/san-kum/swervesim/internal/control"
	"github.com/san-kum/swervesim/internal/geom"
	"github.com/san-kum/swervesim/internal/kinematics"
	"github.com/san-kum/swervesim/internal/telemetry"
)

const (
	notMovingSpeed    = 0.1 // m/s
	goodPointingError = 0.1 // rad
)

// SpeakerLocation is our speaker, assuming Blue until the alliance is known.
func (d *Drivetrain) SpeakerLocation() r2.Point {
	return d.match.Match().AllianceOrBlue().SpeakerLocation()
}

func (d *Drivetrain) DistanceTo(p r2.Point) float64 {
	return geom.Distance(d.Pose().Translation, p)
}

func (d *Drivetrain) DistanceToSpeaker() float64 {
	return d.DistanceTo(d.SpeakerLocation())
}

// AngleTo is the field heading that faces p from the current pose.
func (d *Drivetrain) AngleTo(p r2.Point) s1.Angle {
	return geom.Bearing(d.Pose(), p)
}

// CurrentChassisSpeeds is the robot-relative velocity implied by the
// measured module states.
func (d *Drivetrain) CurrentChassisSpeeds() kinematics.ChassisSpeeds {
	return d.chassis.Kinematics.ToChassisSpeeds(d.ModuleStates())
}

func (d *Drivetrain) NotActivelyMoving() bool {
	return d.CurrentChassisSpeeds().Linear() < notMovingSpeed
}

// GoodPointing reports whether the robot faces its pointing target closely
// enough to act on it. With no target there is nothing to miss.
func (d *Drivetrain) GoodPointing() bool {
	target, ok := d.PointingTarget()
	if !ok {
		return true
	}
	pose := d.Pose()
	err := control.WrapError(pose.Rotation, geom.Bearing(pose, target))
	return err.Abs().Radians() < goodPointingError
}

// ModulePoses places each module on the field using the current pose.
func (d *Drivetrain) ModulePoses() [kinematics.NumModules]geom.Pose {
	pose := d.Pose()
	states := d.ModuleStates()
	var poses [kinematics.NumModules]geom.Pose
	for i, loc := range d.chassis.Kinematics.Locations() {
		poses[i] = geom.Pose{
			Translation: pose.Translation.Add(geom.Rotate(loc, pose.Rotation)),
			Rotation:    (pose.Rotation + states[i].Angle).Normalized(),
		}
	}
	return poses
}

func (d *Drivetrain) publish() {
	pose := d.Pose()
	d.publisher.PutString(telemetry.KeySpeakerLocation, geom.FormatTranslation(d.SpeakerLocation()))
	d.publisher.PutNumber(telemetry.KeyDistanceSpeaker, d.DistanceToSpeaker())
	d.publisher.PutString(telemetry.KeyRobotTranslation, geom.FormatTranslation(pose.Translation))
	d.publisher.PutString(telemetry.KeyRobotRotation, formatRotation(pose.Rotation))
	d.publisher.PutBoolean(telemetry.KeyGoodPointing, d.GoodPointing())
	d.publisher.PutBoolean(telemetry.KeyNotMoving, d.NotActivelyMoving())
}

func formatRotation(a s1.Angle) string {
	deg := a.Degrees()
	if math.Abs(deg) < 5e-3 {
		deg = 0
	}
	return fmt.Sprintf("%.2f°", deg)
}
