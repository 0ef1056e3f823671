package spine

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// chainData 一条 count 节的骨骼链，每节随机旋转与等比缩放
func chainData(rnd *rand.Rand, count int) *SkeletonData {
	data := &SkeletonData{Name: "chain"}
	for i := 0; i < count; i++ {
		bone := NewBoneData(i, "bone", i-1)
		bone.Rotation = rnd.Float32()*360 - 180
		// 等比缩放和旋转顺序无关，非等比缩放顺序有关
		scale := rnd.Float32()/5 + 0.9
		bone.ScaleX, bone.ScaleY = scale, scale
		data.Bones = append(data.Bones, bone)
	}
	return data
}

func TestRotateAndScale(t *testing.T) {
	rnd := rand.New(rand.NewSource(2233))
	data := chainData(rnd, 100)
	skeleton := NewSkeleton(data)
	skeleton.UpdateWorldTransform()

	rotate := float32(0)
	scale := float32(1)
	for _, bone := range data.Bones {
		rotate += bone.Rotation
		scale *= bone.ScaleX
	}
	want := mgl32.Rotate2D(mgl32.DegToRad(rotate)).Mul(scale)
	last := skeleton.Bones[len(skeleton.Bones)-1]
	got := mgl32.Mat2{last.A, last.C, last.B, last.D}
	if !got.ApproxEqualThreshold(want, 1e-3) {
		t.Fatalf("world = %v, want %v", got, want)
	}
}

func TestUpdateAppliedTransform(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		data := newTestData()
		data.Bones[0].Rotation = rnd.Float32()*90 - 45
		lower := data.Bones[2]
		lower.X, lower.Y = rnd.Float32()*20, rnd.Float32()*20
		lower.Rotation = rnd.Float32()*300 - 150
		lower.ScaleX, lower.ScaleY = rnd.Float32()+0.5, rnd.Float32()+0.5
		skeleton := NewSkeleton(data)
		skeleton.UpdateWorldTransform()

		bone := skeleton.Bones[2]
		bone.UpdateAppliedTransform()
		if !approx(bone.AX, lower.X) || !approx(bone.AY, lower.Y) {
			t.Fatalf("applied position = (%v, %v), want (%v, %v)", bone.AX, bone.AY, lower.X, lower.Y)
		}
		if !approx(wrapDegrees(bone.ARotation-lower.Rotation), 0) {
			t.Fatalf("applied rotation = %v, want %v", bone.ARotation, lower.Rotation)
		}
		if !approx(bone.AScaleX, lower.ScaleX) || !approx(bone.AScaleY, lower.ScaleY) {
			t.Fatalf("applied scale = (%v, %v), want (%v, %v)", bone.AScaleX, bone.AScaleY, lower.ScaleX, lower.ScaleY)
		}
	}
}

func TestLocalWorldRoundTrip(t *testing.T) {
	data := newTestData()
	data.Bones[1].Rotation = 30
	data.Bones[1].ScaleX = 2
	skeleton := NewSkeleton(data)
	skeleton.UpdateWorldTransform()
	upper := skeleton.Bones[1]

	local := mgl32.Vec2{3, -4}
	world := upper.LocalToWorld(local)
	if back := upper.WorldToLocal(world); !back.ApproxEqualThreshold(local, 1e-4) {
		t.Fatalf("round trip = %v, want %v", back, local)
	}
	if !approx(upper.LocalToWorldRotation(upper.WorldToLocalRotation(45)), 45) {
		t.Fatalf("rotation round trip")
	}
	if !approx(upper.WorldRotationX(), 30) || !approx(upper.WorldScaleX(), 2) {
		t.Fatalf("world rotation %v scale %v", upper.WorldRotationX(), upper.WorldScaleX())
	}
}

func TestTransformModeOnlyTranslation(t *testing.T) {
	data := newTestData()
	data.Bones[1].Rotation = 90
	data.Bones[2].TransformMode = TransformOnlyTranslation
	skeleton := NewSkeleton(data)
	skeleton.UpdateWorldTransform()
	lower := skeleton.Bones[2]

	// 位置跟随父骨骼旋转，旋转本身不继承
	if !approx(lower.WorldX, 0) || !approx(lower.WorldY, 10) {
		t.Fatalf("position = (%v, %v), want (0, 10)", lower.WorldX, lower.WorldY)
	}
	if !approx(lower.WorldRotationX(), 0) {
		t.Fatalf("rotation = %v, want 0", lower.WorldRotationX())
	}
}

func TestTransformModes(t *testing.T) {
	cases := []struct {
		mode           TransformMode
		rotation       float32
		scaleX, scaleY float32
	}{
		{TransformNormal, 90, 2, 3},
		{TransformOnlyTranslation, 0, 1, 1},
		// 去掉父骨骼旋转后 x y 方向的缩放互换
		{TransformNoRotationOrReflection, 0, 3, 2},
		{TransformNoScale, 90, 1, 1},
		{TransformNoScaleOrReflection, 90, 1, 1},
	}
	for _, c := range cases {
		data := newTestData()
		data.Bones[1].Rotation = 90
		data.Bones[1].ScaleX, data.Bones[1].ScaleY = 2, 3
		data.Bones[2].TransformMode = c.mode
		skeleton := NewSkeleton(data)
		skeleton.UpdateWorldTransform()
		lower := skeleton.Bones[2]

		if !approx(lower.WorldX, 0) || !approx(lower.WorldY, 20) {
			t.Errorf("%v: position = (%v, %v), want (0, 20)", c.mode, lower.WorldX, lower.WorldY)
		}
		if !approx(wrapDegrees(lower.WorldRotationX()-c.rotation), 0) {
			t.Errorf("%v: rotation = %v, want %v", c.mode, lower.WorldRotationX(), c.rotation)
		}
		if !approx(lower.WorldScaleX(), c.scaleX) || !approx(lower.WorldScaleY(), c.scaleY) {
			t.Errorf("%v: scale = (%v, %v), want (%v, %v)", c.mode, lower.WorldScaleX(), lower.WorldScaleY(), c.scaleX, c.scaleY)
		}
	}
}

func TestTransformModeReflection(t *testing.T) {
	cases := []struct {
		mode TransformMode
		det  float32
	}{
		{TransformNoScale, -1},
		{TransformNoScaleOrReflection, 1},
	}
	for _, c := range cases {
		data := newTestData()
		data.Bones[1].ScaleX = -1
		data.Bones[2].TransformMode = c.mode
		skeleton := NewSkeleton(data)
		skeleton.UpdateWorldTransform()
		lower := skeleton.Bones[2]

		// 只有 NoScale 保留父骨骼的镜像
		if det := lower.A*lower.D - lower.B*lower.C; !approx(det, c.det) {
			t.Errorf("%v: det = %v, want %v", c.mode, det, c.det)
		}
		if !approx(lower.WorldScaleX(), 1) || !approx(lower.WorldScaleY(), 1) {
			t.Errorf("%v: scale = (%v, %v), want (1, 1)", c.mode, lower.WorldScaleX(), lower.WorldScaleY())
		}
	}
}
