package spine

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	pi     = float32(math.Pi)
	pi2    = pi * 2
	radDeg = 180 / pi
	degRad = pi / 180
)

func sqrt(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func sin(r float32) float32 {
	return float32(math.Sin(float64(r)))
}

func cos(r float32) float32 {
	return float32(math.Cos(float64(r)))
}

func sinDeg(d float32) float32 {
	return sin(mgl32.DegToRad(d))
}

func cosDeg(d float32) float32 {
	return cos(mgl32.DegToRad(d))
}

func atan2(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)))
}

func acos(v float32) float32 {
	return float32(math.Acos(float64(v)))
}

func signum(v float32) float32 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func floor(v float32) float32 {
	return float32(math.Floor(float64(v)))
}

func mod(a, b float32) float32 {
	return float32(math.Mod(float64(a), float64(b)))
}

// wrapDegrees 把角度规整到 (-180, 180]
func wrapDegrees(r float32) float32 {
	return r - float32(16384-int32(16384.499999999996-float64(r)/360))*360
}

// wrapRadians 把弧度规整到 [-PI, PI]
func wrapRadians(r float32) float32 {
	if r > pi {
		return r - pi2
	}
	if r < -pi {
		return r + pi2
	}
	return r
}

func Vec4Lerp(from, to mgl32.Vec4, rate float32) mgl32.Vec4 {
	return from.Add(to.Sub(from).Mul(rate))
}

func vec2(x, y float32) mgl32.Vec2 {
	return mgl32.Vec2{x, y}
}

// grow 复用底层数组，长度不足时重新分配
func grow(items []float32, size int) []float32 {
	if cap(items) < size {
		return make([]float32, size)
	}
	return items[:size]
}
