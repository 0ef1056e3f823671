package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"spine"
)

var (
	BlendMap = map[spine.BlendMode]ebiten.Blend{
		spine.BlendNormal:   ebiten.BlendSourceOver,
		spine.BlendAdditive: ebiten.BlendLighter,
		spine.BlendMultiply: {
			// 前景乘以背景
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorZero,
			BlendFactorDestinationAlpha: ebiten.BlendFactorZero,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		},
		spine.BlendScreen: {
			// 背景乘以 (1 - 前景) 再叠加前景
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		},
	}
	boneColor  = color.RGBA{R: 255, G: 80, B: 80, A: 255}
	shapeColor = color.RGBA{R: 80, G: 200, B: 255, A: 255}
)

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image) // 避免采样到边缘
)

func init() {
	whiteImage.Fill(color.White)
}

type Game struct {
	Data      *spine.SkeletonData
	Skeleton  *spine.Skeleton
	State     *spine.AnimationState
	AnimIndex int
	Pos       mgl32.Vec2 // 调整位置
	LastEvent string

	vertices  []float32
	triangles []ebiten.Vertex
	indices   []uint16
}

func NewGame(data *spine.SkeletonData, stateData *spine.AnimationStateData, animName string) (*Game, error) {
	res := &Game{
		Data:     data,
		Skeleton: spine.NewSkeleton(data),
		State:    spine.NewAnimationState(stateData),
		Pos:      mgl32.Vec2{640, 600},
	}
	if animName != "" {
		res.AnimIndex = slices.IndexFunc(data.Animations, func(item *spine.Animation) bool {
			return item.Name == animName
		})
		if res.AnimIndex < 0 {
			return nil, fmt.Errorf("animation %q: %w", animName, spine.ErrUnknownAnimation)
		}
	}
	res.Skeleton.ScaleY = -1 // 屏幕坐标 y 轴向下
	res.State.AddListener(&spine.ListenerFuncs{
		OnStart: func(entry *spine.TrackEntry) {
			log.Printf("track %d start %s", entry.TrackIndex(), entry)
		},
		OnInterrupt: func(entry *spine.TrackEntry) {
			log.Printf("track %d interrupt %s", entry.TrackIndex(), entry)
		},
		OnEnd: func(entry *spine.TrackEntry) {
			log.Printf("track %d end %s", entry.TrackIndex(), entry)
		},
		OnComplete: func(entry *spine.TrackEntry) {
			log.Printf("track %d complete %s", entry.TrackIndex(), entry)
		},
		OnEvent: func(entry *spine.TrackEntry, event *spine.Event) {
			res.LastEvent = fmt.Sprintf("%s@%.2f", event.Data.Name, event.Time)
			log.Printf("track %d event %s", entry.TrackIndex(), res.LastEvent)
		},
	})
	res.State.SetAnimationWith(0, data.Animations[res.AnimIndex], true)
	return res, nil
}

func (g *Game) Update() error {
	// 按键控制
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		g.Pos[1]--
	} else if ebiten.IsKeyPressed(ebiten.KeyS) {
		g.Pos[1]++
	} else if ebiten.IsKeyPressed(ebiten.KeyA) {
		g.Pos[0]--
	} else if ebiten.IsKeyPressed(ebiten.KeyD) {
		g.Pos[0]++
	} else if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		log.Println(g.Pos, g.State)
	}
	count := len(g.Data.Animations)
	if inpututil.IsKeyJustPressed(ebiten.KeyJ) {
		g.AnimIndex = (g.AnimIndex - 1 + count) % count
		g.State.SetAnimationWith(0, g.Data.Animations[g.AnimIndex], true)
	} else if inpututil.IsKeyJustPressed(ebiten.KeyK) {
		g.AnimIndex = (g.AnimIndex + 1) % count
		g.State.SetAnimationWith(0, g.Data.Animations[g.AnimIndex], true)
	} else if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		// 当前动画播完一轮后切到下一个
		g.AnimIndex = (g.AnimIndex + 1) % count
		g.State.AddAnimationWith(0, g.Data.Animations[g.AnimIndex], true, 0)
	} else if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.State.SetEmptyAnimation(0, 0.5)
	}

	delta := float32(1 / float64(ebiten.TPS()))
	g.State.Update(delta)
	g.State.Apply(g.Skeleton)
	g.Skeleton.X, g.Skeleton.Y = g.Pos.X(), g.Pos.Y()
	g.Skeleton.Update(delta)
	g.Skeleton.UpdateWorldTransform()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	for _, slot := range g.Skeleton.DrawOrder {
		g.drawSlot(slot, screen)
	}
	for _, bone := range g.Skeleton.Bones {
		if !bone.IsActive() {
			continue
		}
		x, y := bone.WorldX, bone.WorldY
		length := bone.Data.Length
		if length == 0 {
			vector.DrawFilledCircle(screen, x, y, 2, boneColor, true)
			continue
		}
		vector.StrokeLine(screen, x, y, x+bone.A*length, y+bone.C*length, 2, boneColor, true)
	}
	current := g.State.Current(0)
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s\nJ/K switch  Space queue  Backspace empty\nevent: %s",
		current, g.LastEvent))
}

func (g *Game) drawSlot(slot *spine.Slot, screen *ebiten.Image) {
	if !slot.Bone().IsActive() {
		return
	}
	switch attachment := slot.Attachment().(type) {
	case *spine.RegionAttachment:
		g.vertices = grow(g.vertices, 8)
		attachment.ComputeWorldVertices(slot.Bone(), g.vertices, 0, 2)
		clr := mul(slot.Color, attachment.Color)
		g.fillTriangles(screen, g.vertices, []uint16{0, 1, 2, 2, 3, 0}, clr, slot.Data.BlendMode)
	case *spine.MeshAttachment:
		count := attachment.WorldVerticesLength
		g.vertices = grow(g.vertices, count)
		attachment.ComputeWorldVertices(slot, 0, count, g.vertices, 0, 2)
		clr := mul(slot.Color, attachment.Color)
		g.fillTriangles(screen, g.vertices, attachment.Triangles, clr, slot.Data.BlendMode)
	case *spine.BoundingBoxAttachment:
		g.strokeVertices(screen, slot, &attachment.VertexAttachment, true)
	case *spine.ClippingAttachment:
		g.strokeVertices(screen, slot, &attachment.VertexAttachment, true)
	case *spine.PathAttachment:
		g.strokeVertices(screen, slot, &attachment.VertexAttachment, attachment.Closed)
	case *spine.PointAttachment:
		pos := attachment.ComputeWorldPosition(slot.Bone())
		vector.DrawFilledCircle(screen, pos.X(), pos.Y(), 3, shapeColor, true)
	}
}

// fillTriangles 没有加载贴图，用纯色显示附件覆盖的区域
func (g *Game) fillTriangles(screen *ebiten.Image, vertices []float32, indices []uint16, clr mgl32.Vec4, blend spine.BlendMode) {
	g.triangles = g.triangles[:0]
	for i := 0; i+1 < len(vertices); i += 2 {
		g.triangles = append(g.triangles, ebiten.Vertex{
			DstX:   vertices[i],
			DstY:   vertices[i+1],
			SrcX:   1,
			SrcY:   1,
			ColorR: clr[0],
			ColorG: clr[1],
			ColorB: clr[2],
			ColorA: clr[3] * 0.5,
		})
	}
	g.indices = append(g.indices[:0], indices...)
	screen.DrawTriangles(g.triangles, g.indices, whiteSubImage, &ebiten.DrawTrianglesOptions{Blend: BlendMap[blend]})
}

func (g *Game) strokeVertices(screen *ebiten.Image, slot *spine.Slot, attachment *spine.VertexAttachment, closed bool) {
	count := attachment.WorldVerticesLength
	if count < 4 {
		return
	}
	g.vertices = grow(g.vertices, count)
	attachment.ComputeWorldVertices(slot, 0, count, g.vertices, 0, 2)
	for i := 2; i < count; i += 2 {
		vector.StrokeLine(screen, g.vertices[i-2], g.vertices[i-1], g.vertices[i], g.vertices[i+1], 1, shapeColor, true)
	}
	if closed {
		vector.StrokeLine(screen, g.vertices[count-2], g.vertices[count-1], g.vertices[0], g.vertices[1], 1, shapeColor, true)
	}
}

func (g *Game) Layout(w, h int) (int, int) {
	return w, h
}

func grow(items []float32, size int) []float32 {
	if cap(items) < size {
		return make([]float32, size)
	}
	return items[:size]
}

func mul(v1, v2 mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{v1.X() * v2.X(), v1.Y() * v2.Y(), v1.Z() * v2.Z(), v1.W() * v2.W()}
}
