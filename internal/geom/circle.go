package geom

import "math"

// DefaultRadius is the cross-section radius used when none is configured.
const DefaultRadius = 10

// Circle is a flat disc of voxel offsets in the XY plane, centered on the
// origin. It is one cross-section of the scan cone before being turned to
// face the camera.
type Circle struct {
	Radius int
}

func NewCircle(radius int) Circle { return Circle{Radius: radius} }

// Points returns every (x, y, 0) with x²+y² < (radius+1)², in ascending
// (y, x) order.
func (c Circle) Points() []Vec3 {
	r := c.Radius
	if r < 0 {
		return nil
	}
	limit := (r + 1) * (r + 1)
	out := make([]Vec3, 0, (2*r+1)*(2*r+1))
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y < limit {
				out = append(out, Vec3{X: x, Y: y})
			}
		}
	}
	return out
}

// AlongCamera returns the disc rotated so that its normal (+Z) points along
// camera.
func (c Circle) AlongCamera(camera Vec3) []Vec3 {
	pts := c.Points()
	m := RotationFor(camera)
	if m.IsIdentity() {
		return pts
	}
	for i, p := range pts {
		pts[i] = m.Apply(p.Float()).Rounded()
	}
	return pts
}

// PitchYawOf recovers the angles (radians) that turn +Z onto v. Straight up
// and straight down have no yaw; they get yaw 0 and pitch -π/2 (up) or π/2
// (down).
func PitchYawOf(v Vec3) (pitch, yaw float64) {
	if v.X == 0 && v.Z == 0 {
		if v.Y < 0 {
			return math.Pi / 2, 0
		}
		return -math.Pi / 2, 0
	}
	x := float64(v.X)
	y := float64(v.Y)
	z := float64(v.Z)

	xzLen := math.Sqrt(x*x + z*z)
	length := math.Sqrt(x*x + y*y + z*z)

	yaw = -math.Asin(x / xzLen)
	if v.Z < 0 {
		sign := 1.0
		if v.X < 0 {
			sign = -1
		}
		yaw = -sign*math.Pi - yaw
	}
	pitch = -math.Asin(y / length)
	return cleanZero(pitch), cleanZero(yaw)
}

func cleanZero(a float64) float64 {
	if math.Abs(a) < 2*math.SmallestNonzeroFloat64 {
		return 0
	}
	return a
}

// Direction converts camera pitch and yaw (degrees) into a unit forward
// vector. Zero pitch and yaw look along +Z; positive pitch looks down.
func Direction(pitch, yaw float32) Vec3f {
	p := float64(pitch) * math.Pi / 180
	y := float64(yaw) * math.Pi / 180
	cp := math.Cos(p)
	return Vec3f{
		X: -math.Sin(y) * cp,
		Y: -math.Sin(p),
		Z: math.Cos(y) * cp,
	}
}

// Mat3 is a row-major 3x3 rotation.
type Mat3 [3][3]float64

func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func RotateX(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Mat3{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

func RotateY(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Mat3{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

func (m Mat3) Mul(o Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = m[r][0]*o[0][c] + m[r][1]*o[1][c] + m[r][2]*o[2][c]
		}
	}
	return out
}

func (m Mat3) Apply(v Vec3f) Vec3f {
	return Vec3f{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

func (m Mat3) IsIdentity() bool { return m == Identity() }

// RotationFor is rotateY(-yaw) followed by rotateX(pitch), applied to column
// vectors.
func RotationFor(camera Vec3) Mat3 {
	pitch, yaw := PitchYawOf(camera)
	if pitch == 0 && yaw == 0 {
		return Identity()
	}
	return RotateY(-yaw).Mul(RotateX(pitch))
}
