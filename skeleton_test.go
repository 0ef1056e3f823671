package spine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func withArmIk(data *SkeletonData) *IkConstraintData {
	ik := NewIkConstraintData("arm")
	ik.Bones = []int{1, 2}
	ik.Target = 3
	data.IkConstraints = append(data.IkConstraints, ik)
	return ik
}

func cacheNames(skeleton *Skeleton) []string {
	res := make([]string, 0)
	for _, item := range skeleton.UpdateCacheList() {
		res = append(res, fmt.Sprint(item))
	}
	return res
}

func TestUpdateCacheOrder(t *testing.T) {
	data := newTestData()
	withArmIk(data)
	skeleton := NewSkeleton(data)

	// lower 由 IK 更新，不单独出现
	assertLogs(t, cacheNames(skeleton), "root", "target", "upper", "arm")
	skeleton.UpdateCache()
	assertLogs(t, cacheNames(skeleton), "root", "target", "upper", "arm")
}

func TestUpdateCacheConstraintOrder(t *testing.T) {
	data := newTestData()
	ik := withArmIk(data)
	ik.Order = 1
	follow := NewBoneData(4, "follow", 0)
	data.Bones = append(data.Bones, follow)
	copyTarget := NewTransformConstraintData("copy")
	copyTarget.Bones = []int{3}
	copyTarget.Target = 4
	copyTarget.TranslateMix = 1
	data.TransformConstraints = append(data.TransformConstraints, copyTarget)
	skeleton := NewSkeleton(data)

	// IK 目标先被 transform 约束移动，IK 才能用到新的位置
	assertLogs(t, cacheNames(skeleton), "root", "follow", "target", "copy", "upper", "arm")
	if c := skeleton.FindConstraint("copy"); c == nil || c.ConstraintData() != copyTarget {
		t.Fatalf("FindConstraint(copy) = %v", c)
	}
	if names := skeleton.Constraints(); names[0].ConstraintData() != copyTarget {
		t.Fatalf("constraints should be ordered: %v", names)
	}
}

func TestSkinRequiredBones(t *testing.T) {
	data := newTestData()
	ik := withArmIk(data)
	data.Bones[3].SkinRequired = true
	ik.SkinRequired = true
	extra := NewSkin("extra")
	extra.Bones = []int{3}
	extra.Constraints = []ConstraintData{ik}
	data.Skins = append(data.Skins, extra)
	skeleton := NewSkeleton(data)

	if skeleton.Bones[3].IsActive() || skeleton.IkConstraints[0].IsActive() {
		t.Fatalf("skin required bone and constraint should be inactive without the skin")
	}
	assertLogs(t, cacheNames(skeleton), "root", "upper", "lower")

	if err := skeleton.SetSkinByName("extra"); err != nil {
		t.Fatal(err)
	}
	if !skeleton.Bones[3].IsActive() || !skeleton.IkConstraints[0].IsActive() {
		t.Fatalf("skin should activate its bones and constraints")
	}
	assertLogs(t, cacheNames(skeleton), "root", "target", "upper", "arm")
}

func TestSetSkin(t *testing.T) {
	data := newTestData()
	alt, gold := NewSkin("alt"), NewSkin("gold")
	altBox, goldBox := NewRegionAttachment("box"), NewRegionAttachment("box")
	alt.SetAttachment(0, "box", altBox)
	gold.SetAttachment(0, "box", goldBox)
	data.Skins = append(data.Skins, alt, gold)
	skeleton := NewSkeleton(data)
	body := skeleton.Slots[0]

	if body.Attachment() != data.DefaultSkin.Attachment(0, "box") {
		t.Fatalf("setup attachment should come from the default skin")
	}
	skeleton.SetSkin(alt)
	if body.Attachment() != altBox {
		t.Fatalf("attachment = %p, want alt box", body.Attachment())
	}
	skeleton.SetSkin(gold)
	if body.Attachment() != goldBox {
		t.Fatalf("attachment = %p, want gold box", body.Attachment())
	}
	// 当前皮肤没有的附件回退到默认皮肤
	if skeleton.Attachment(0, "point") == nil {
		t.Fatalf("default skin fallback")
	}
	if err := skeleton.SetSkinByName("missing"); !errors.Is(err, ErrUnknownSkin) {
		t.Fatalf("err = %v", err)
	}
}

func TestSkeletonSetAttachment(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	body := skeleton.FindSlot("body")

	if err := skeleton.SetAttachment("body", "point"); err != nil {
		t.Fatal(err)
	}
	if body.Attachment().Type() != AttachmentPoint {
		t.Fatalf("attachment = %v", body.Attachment())
	}
	if err := skeleton.SetAttachment("body", "missing"); !errors.Is(err, ErrUnknownAttachment) {
		t.Fatalf("err = %v", err)
	}
	if err := skeleton.SetAttachment("missing", "box"); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("err = %v", err)
	}
	if err := skeleton.SetAttachment("body", ""); err != nil || body.Attachment() != nil {
		t.Fatalf("empty name should clear: %v", err)
	}

	skeleton.DrawOrder[0], skeleton.DrawOrder[1] = skeleton.DrawOrder[1], skeleton.DrawOrder[0]
	body.Color = mgl32.Vec4{1, 0, 0, 1}
	skeleton.SetSlotsToSetupPose()
	if skeleton.DrawOrder[0] != body || body.Attachment().Name() != "box" || body.Color != body.Data.Color {
		t.Fatalf("slots should be back in setup pose")
	}
}

func TestAttachmentTimeTracksSkeletonTime(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	body := skeleton.Slots[0]
	skeleton.Update(1)
	skeleton.SetAttachment("body", "point")
	skeleton.Update(0.5)
	if !approx(body.AttachmentTime(), 0.5) {
		t.Fatalf("attachment time = %v, want 0.5", body.AttachmentTime())
	}
	body.SetAttachmentTime(2)
	if !approx(body.AttachmentTime(), 2) {
		t.Fatalf("attachment time = %v, want 2", body.AttachmentTime())
	}
}

func TestBounds(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	skeleton.X = 5
	skeleton.UpdateWorldTransform()
	lower, upper := skeleton.Bounds()
	if !lower.ApproxEqual(mgl32.Vec2{4, -1}) || !upper.ApproxEqual(mgl32.Vec2{6, 1}) {
		t.Fatalf("bounds = %v %v", lower, upper)
	}

	skeleton.SetAttachment("body", "")
	lower, upper = skeleton.Bounds()
	if lower != (mgl32.Vec2{}) || upper != (mgl32.Vec2{}) {
		t.Fatalf("no visible attachment = %v %v", lower, upper)
	}
}

// triangleMesh 挂在 upper 上的无权重三角形
func triangleMesh() *MeshAttachment {
	mesh := NewMeshAttachment("flag")
	mesh.Vertices = []float32{0, 0, 10, 0, 0, 10}
	mesh.WorldVerticesLength = 6
	mesh.Triangles = []uint16{0, 1, 2}
	mesh.UVs = []float32{0, 1, 1, 1, 0, 0}
	mesh.HullLength = 6
	return mesh
}

func TestCopySkinLinksMeshes(t *testing.T) {
	source := NewSkin("source")
	mesh := triangleMesh()
	box := NewRegionAttachment("box")
	source.SetAttachment(1, "flag", mesh)
	source.SetAttachment(0, "box", box)
	source.Bones = []int{3}

	copied := NewSkin("copied")
	copied.CopySkin(source)
	if copied.Attachment(0, "box") != box {
		t.Fatalf("region attachments are shared")
	}
	linked, ok := copied.Attachment(1, "flag").(*MeshAttachment)
	if !ok || linked == mesh || linked.ParentMesh() != mesh {
		t.Fatalf("mesh should be copied as a linked mesh")
	}
	if linked.Type() != AttachmentLinkedMesh || len(linked.Vertices) != 6 {
		t.Fatalf("linked mesh shares the parent vertices")
	}
	if len(copied.Bones) != 1 || copied.Bones[0] != 3 {
		t.Fatalf("bones = %v", copied.Bones)
	}
	if len(copied.AttachmentsForSlot(1)) != 1 {
		t.Fatalf("attachments for slot = %v", copied.AttachmentsForSlot(1))
	}
}

func TestDeformAppliesToLinkedMesh(t *testing.T) {
	data := newTestData()
	mesh := triangleMesh()
	linked := mesh.NewLinkedMesh()
	data.DefaultSkin.SetAttachment(1, "flag", mesh)
	data.DefaultSkin.SetAttachment(1, "linked", linked)
	skeleton := NewSkeleton(data)
	skeleton.UpdateWorldTransform()
	arm := skeleton.Slots[1]

	timeline := NewDeformTimeline(1, mesh)
	timeline.SlotIndex = 1
	timeline.SetFrame(0, 0, []float32{0, 0, 20, 0, 0, 20})

	skeleton.SetAttachment("arm", "linked")
	timeline.Apply(skeleton, 0, 0, nil, 1, true, false)
	if len(arm.Deform) != 6 || arm.Deform[2] != 20 {
		t.Fatalf("deform = %v", arm.Deform)
	}
	world := make([]float32, 6)
	linked.ComputeWorldVertices(arm, 0, 6, world, 0, 2)
	if world[2] != 20 || world[5] != 20 {
		t.Fatalf("world vertices = %v", world)
	}

	// 换附件清空 deform
	skeleton.SetAttachment("arm", "flag")
	if len(arm.Deform) != 0 {
		t.Fatalf("deform should reset on attachment change")
	}
	other := NewMeshAttachment("other")
	other.Vertices = mesh.Vertices
	arm.SetAttachment(other)
	timeline.Apply(skeleton, 0, 0, nil, 1, true, false)
	if len(arm.Deform) != 0 {
		t.Fatalf("deform of another mesh must not apply")
	}
}

func TestSkinRemoveAttachment(t *testing.T) {
	skin := NewSkin("s")
	a, b, c := NewPointAttachment("a"), NewPointAttachment("b"), NewPointAttachment("c")
	skin.SetAttachment(0, "a", a)
	skin.SetAttachment(1, "b", b)
	skin.SetAttachment(0, "c", c)

	skin.RemoveAttachment(0, "a")
	skin.RemoveAttachment(0, "missing")
	if skin.Attachment(0, "a") != nil || skin.Attachment(0, "c") != c || skin.Attachment(1, "b") != b {
		t.Fatalf("lookups after remove are wrong")
	}
	if entries := skin.Attachments(); len(entries) != 2 || entries[0].Name != "b" || entries[1].Name != "c" {
		t.Fatalf("entries should keep insertion order")
	}
}

func TestBoneChildren(t *testing.T) {
	skeleton := NewSkeleton(newTestData())
	assertInts := func(got []int, want ...int) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("children = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("children = %v, want %v", got, want)
			}
		}
	}
	assertInts(skeleton.Bones[0].Children(), 1, 3)
	assertInts(skeleton.Bones[1].Children(), 2)
	assertInts(skeleton.Bones[2].Children())
	if skeleton.AttachmentByName("body", "box") == nil || skeleton.AttachmentByName("missing", "box") != nil {
		t.Fatalf("AttachmentByName lookups")
	}
}
